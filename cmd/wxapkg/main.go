// Command wxapkg decrypts, extracts, and restores WeChat mini-program
// .wxapkg archives. See internal/cliapp for the scan/unpack/restore
// subcommands.
package main

import "github.com/kenneth/wxapkg-restorer/internal/cliapp"

func main() {
	cliapp.Execute()
}
