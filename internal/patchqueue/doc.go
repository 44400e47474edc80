// Package patchqueue discovers the ordered patch queue and owns its temporary snapshot.
package patchqueue
