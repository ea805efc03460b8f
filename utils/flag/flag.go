/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	SyncServer = "sync_server"
	AppClient  = "app_client"
)

var (
	IsDevelopment = flag.Bool("dev", true, "set to true if the current run is for development. default value is true")
	ServiceName   = flag.String("service", SyncServer, "'sync_server' or 'app_client'")
)

// Parsing happens in each service's main, never at package init: the testing
// framework registers its own flags after package init, and an eager Parse
// would reject them.
func Parse() {
	flag.Parse()
}
