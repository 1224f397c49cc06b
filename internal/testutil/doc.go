// SPDX-License-Identifier: MPL-2.0

// Package testutil builds throwaway install trees for tests: directories
// with MustMkdirAll, and manifests, scripts or fake binaries with
// MustWriteFile. Both fail the test on error.
package testutil
