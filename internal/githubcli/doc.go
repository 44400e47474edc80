// Package githubcli reads GitHub Actions data through the gh CLI.
//
// Client issues `gh api` requests via execshell, decodes the JSON responses
// into domain structs and reports failures as OperationError,
// ResponseDecodingError or InvalidInputError.
package githubcli
