// SPDX-License-Identifier: MPL-2.0

// Package issue holds the dispatcher's user-facing failure reporting.
//
// An ActionableError names the step that failed and the path or command it
// concerned, and lists what the user can try next. Each error may point at
// an Id in the catalog, whose Markdown guide bootshimctl renders with
// glamour.
package issue
