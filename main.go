// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/sci-bots/droplet-planning-plugin/cmd/dpp"

func main() {
	cmd.Execute()
}
