// Command portfolioctl runs operator tasks against the portfolio database:
// schema migrations, administrator accounts and bulk visitor imports.
package main

import "os"

func main() {
	os.Exit(execute())
}
