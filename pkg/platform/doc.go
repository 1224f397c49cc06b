// SPDX-License-Identifier: MPL-2.0

// Package platform describes the host a dispatcher runs on.
//
// It owns the HostDescriptor value (operating system plus CPU architecture),
// the fixed table that maps hosts to platform artifact package names, the
// per-OS executable suffix, and detection of application sandboxes that hide
// host tools from the current process.
package platform
