// SPDX-License-Identifier: MPL-2.0

// Package hub implements the plugin's messaging endpoint: a JSON-over-WebSocket
// server exposing the droplet routing commands (add_route, get_routes,
// clear_routes, execute_routes) and a client for driving it.
//
// One text frame carries one JSON request or response. While execute_routes
// runs, the server streams electrode state notifications to the requesting
// connection before sending the final response.
package hub
