package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	kconf "github.com/strataml/strata/pkg/configs/strata"
	"github.com/strataml/strata/pkg/domain/strata"
	"github.com/strataml/strata/pkg/utils/echoutil"
	"github.com/strataml/strata/pkg/utils/filewatch"
	kstrings "github.com/strataml/strata/pkg/utils/strings"

	"github.com/strataml/strata/cmd/stratad/handlers"
)

func main() {

	configPath := flag.String(
		"config-path", os.Getenv("STRATA_CONFIG"), "server config path",
	)
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	// set log
	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	// read configfile
	conf, err := kconf.LoadStrataConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	{
		// a modified config quits the server; the restart picks it up
		ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), *configPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		context.AfterFunc(ctx, func() {
			log.Println("config file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	api, err := root("/api")
	if err != nil {
		log.Fatalf("api root /api is invalid url or path: %s", err)
	}

	// build components
	ctx := context.Background()
	s, err := strata.New(ctx, conf)
	if err != nil {
		log.Fatalf("can not start strata: %s", err)
	}
	defer s.Close()

	// the API server owns the schema; loops run with migration off
	if err := s.Schema().Database().Upgrade(ctx); err != nil {
		log.Fatalf("can not upgrade the placement database schema: %s", err)
	}
	if version, err := s.Schema().Database().Version(ctx); err == nil {
		log.Printf("placement database schema version: %d", version)
	}

	// handlers
	{
		entityId := "entityId"
		e.POST(api("entities"), handlers.RegisterEntityHandler(s.Gateway()))
		e.GET(api("entities/:entityId/"), handlers.ReadEntityHandler(s.Gateway(), entityId))
		e.PUT(api("entities/:entityId/"), handlers.OverwriteEntityHandler(s.Gateway(), entityId))
		e.DELETE(api("entities/:entityId/"), handlers.DeleteEntityHandler(s.Gateway(), entityId))
		e.GET(api("entities/:entityId/placement"), handlers.GetPlacementHandler(s.Gateway(), entityId))
	}

	{
		e.GET(api("metrics"), handlers.GetMetricsHandler(
			s.Database().Tracker(), s.Metrics(), s.Database().Sweeps(),
		))
	}

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(fmt.Sprintf(":%d", conf.Port()), cert, key))
	} else {
		e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", conf.Port())))
	}
}

// create api URL factory
//
// args:
//   - root: api root
//
// return:
// - func: it receive relative path from root, and returns full-path of URL.
func root(r string) (func(...string) string, error) {
	//    when r is https://example.org:8080/api/root/path
	origin := "" // https://example.org:8080/ . "/" terminated. if r is path only, this is empty.
	base := ""   // /api/root/path
	{
		b, err := url.Parse(r)
		if err != nil {
			return nil, err
		}
		base = b.Path
		if b.Host != "" || b.Scheme != "" {
			_r := *b
			r := &_r
			r.RawPath = ""
			r.Path = ""
			r.RawQuery = ""
			r.Fragment = ""
			origin = r.String()
		}
	}
	origin = kstrings.SuppySuffix(origin, "/")

	return func(s ...string) string {
		parts := make([]string, len(s)+1)
		parts[0] = base
		copy(parts[1:], s)
		path := path.Join(parts...)
		path = kstrings.TrimPrefixAll(path, "/")

		return kstrings.SuppySuffix(origin+path, "/")
	}, nil
}
