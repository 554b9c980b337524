// SPDX-License-Identifier: MPL-2.0

// Package routectl executes droplet route tables in lock-step.
//
// All routes advance together, one transition window per tick. A trail of
// configurable length stays actuated behind each droplet's head, cycle routes
// (first electrode == last electrode) wrap their trail around the route end,
// and a pass over the table can repeat by count or by elapsed duration.
// Electrode state vectors are pushed to an ElectrodeWriter; the controller
// itself never touches hardware.
package routectl
