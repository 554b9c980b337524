// SPDX-License-Identifier: MPL-2.0

// Package routes models droplet routes: ordered sequences of electrode
// identifiers a droplet is walked along on the device. A Table holds every
// route for the current protocol step; routes are identified by a small
// integer index and are executed in lock-step by the routectl package.
package routes
