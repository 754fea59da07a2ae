// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/skeleton-dev/skeleton/cmd/skeleton"

func main() {
	cmd.Execute()
}
