// Package testresults publishes GitHub Actions test outcomes into a README section.
//
// The workflow resolves the nixpkgs commit under test, fetches the jobs of a
// workflow run through the gh CLI, classifies them into platform buckets,
// renders a {{TOKEN}} template and replaces the section of the README enclosed
// by the TEST_RESULTS_START and TEST_RESULTS_END markers.
package testresults
