// Command gonetcored wires the typed option table, the HTTP server, and the
// process supervisor into a runnable server, registering a couple of
// example pages so the binary is useful as a smoke test straight out of the
// box.
package main

import (
	"log"
	"os"

	"github.com/searchktools/netcore/app"
	"github.com/searchktools/netcore/config"
	"github.com/searchktools/netcore/httpmsg"
	"github.com/searchktools/netcore/httpserver"
)

func main() {
	opts := config.New()

	mgr := config.NewManager()
	mgr.LoadFromEnv("NETCORE_")
	if path := os.Getenv("NETCORE_CONFIG_FILE"); path != "" {
		if err := mgr.LoadFromJSON(path); err != nil {
			log.Fatalf("netcore: loading config file: %v", err)
		}
	}
	if err := mgr.Unmarshal("", opts); err != nil {
		log.Fatalf("netcore: applying config overlay: %v", err)
	}

	a := app.New(opts, nil, log.Default())

	noCache := httpserver.PageAttributes{CacheControl: "no-store"}

	a.Server().RegisterPage("/healthz", func(req *httpmsg.Request, resp *httpmsg.Response) httpmsg.Status {
		resp.WriteBody([]byte("ok"))
		return httpmsg.StatusOK
	}, noCache)

	a.Server().SetDefaultHandler(func(req *httpmsg.Request, resp *httpmsg.Response) httpmsg.Status {
		resp.WriteBody([]byte("not found: " + req.Path))
		return httpmsg.StatusNotFound
	}, noCache)

	if err := a.Run(); err != nil {
		log.Fatalf("netcore: %v", err)
	}
}
