// dspweb is a development server for dsp templates.
//
// It serves the compiled form of every template under a directory, along
// with the dsp.js support library, recompiling on each request so the
// browser always sees the latest sources:
//
//	dspweb --namespace views app/views
//
//	<script src="http://localhost:9812/dsp.js"></script>
//	<script src="http://localhost:9812/admin/home.js"></script>
//
// Compile errors are returned as the response body, so a broken template
// shows its position in the browser. Requesting / lists the templates.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"

	dsp "github.com/Bithero-Agency/ninox.d-dsp"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "dspweb:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags = pflag.NewFlagSet("dspweb", pflag.ContinueOnError)
	var (
		port      = flags.IntP("port", "p", 9812, "port on which to listen")
		namespace = flags.String("namespace", "", "root namespace for the compiled templates")
	)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: dspweb [flags] [template dir]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Serves compiled templates and the dsp.js support library over HTTP,")
		fmt.Fprintln(os.Stderr, "recompiling the template directory on every request.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprint(os.Stderr, flags.FlagUsages())
	}
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flags.NArg() > 1 {
		return fmt.Errorf("expected at most one template directory, got %d", flags.NArg())
	}
	var src = "."
	if flags.NArg() == 1 {
		src = flags.Arg(0)
	}

	dsp.Logger.Info("listening", "addr", fmt.Sprintf(":%d", *port), "dir", src)
	return http.ListenAndServe(fmt.Sprintf(":%d", *port), &server{src: src, namespace: *namespace})
}

type server struct {
	src       string
	namespace string
}

func (s *server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	var rel = strings.TrimPrefix(req.URL.Path, "/")
	if rel == "dsp.js" {
		res.Header().Set("Content-Type", "application/javascript")
		res.Write(dsp.RuntimeJS)
		return
	}

	build, err := dsp.NewBundle().
		Namespace(s.namespace).
		AddTemplateDir(s.src).
		Compile()
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	if rel == "" {
		res.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, file := range build.Files {
			fmt.Fprintf(res, "%s\t/%s\n", file.Entry(), file.OutPath)
		}
		return
	}
	for _, file := range build.Files {
		if file.OutPath == rel {
			res.Header().Set("Content-Type", "application/javascript")
			res.Write(file.JS)
			return
		}
	}
	http.NotFound(res, req)
}
