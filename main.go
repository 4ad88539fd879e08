// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/nagaoil/nagaoil/cmd/nagaoil"

func main() {
	cmd.Execute()
}
