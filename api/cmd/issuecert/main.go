package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/go-acme/lego/v4/lego"

	"pixelfort/api/internal/adapters/acme"
)

// Bootstraps the origin's own TLS certificate. Customer domains never need
// this; the hostname provider issues theirs.
func main() {
	var (
		domainName = flag.String("domain", "", "domain to issue a certificate for")
		email      = flag.String("email", "", "ACME account email")
		outDir     = flag.String("out", "/etc/pixelfort/tls", "directory for fullchain.pem and privkey.pem")
		staging    = flag.Bool("staging", false, "use the Let's Encrypt staging CA")
		httpPort   = flag.String("http-port", "80", "port for the standalone HTTP-01 solver")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if *domainName == "" || *email == "" {
		logger.Error("both -domain and -email are required")
		os.Exit(2)
	}

	p := &acme.Provisioner{
		Email:    *email,
		HTTPPort: *httpPort,
		Logger:   logger,
	}
	if *staging {
		p.CADirURL = lego.LEDirectoryStaging
	}

	if err := p.Obtain(*domainName, *outDir); err != nil {
		logger.Error("certificate issuance failed", "error", err)
		os.Exit(1)
	}
}
