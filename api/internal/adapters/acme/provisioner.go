// api/internal/adapters/acme/provisioner.go
package acme

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/challenge/http01"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
)

// Custom hostnames get their certificates from the hostname provider; the
// origin's own serving domain does not sit behind it, so we obtain that one
// certificate ourselves over ACME HTTP-01.

type account struct {
	Email        string
	Registration *registration.Resource
	key          crypto.PrivateKey
}

func (a *account) GetEmail() string                        { return a.Email }
func (a *account) GetRegistration() *registration.Resource { return a.Registration }
func (a *account) GetPrivateKey() crypto.PrivateKey        { return a.key }

type Provisioner struct {
	Email    string
	CADirURL string // defaults to Let's Encrypt production
	HTTPPort string // port the standalone HTTP-01 solver binds, default "80"
	Logger   *slog.Logger
}

// Obtain runs the full ACME flow for domainName and writes fullchain.pem and
// privkey.pem under outDir. The caller must ensure port 80 traffic for the
// domain reaches this process while it runs.
func (p *Provisioner) Obtain(domainName, outDir string) error {
	p.Logger.Info("Starting ACME certificate provision", slog.String("domain", domainName))

	// 1. Account key
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate account key: %w", err)
	}
	acct := account{Email: p.Email, key: privateKey}

	// 2. Lego client
	cfg := lego.NewConfig(&acct)
	cfg.CADirURL = p.CADirURL
	if cfg.CADirURL == "" {
		cfg.CADirURL = lego.LEDirectoryProduction
	}

	client, err := lego.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create lego client: %w", err)
	}

	// 3. Standalone HTTP-01 solver
	port := p.HTTPPort
	if port == "" {
		port = "80"
	}
	if err := client.Challenge.SetHTTP01Provider(http01.NewProviderServer("", port)); err != nil {
		return fmt.Errorf("failed to set http01 provider: %w", err)
	}

	// 4. Register account & agree to terms
	reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return fmt.Errorf("failed to register ACME account: %w", err)
	}
	acct.Registration = reg

	// 5. Obtain the certificate
	certs, err := client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: []string{domainName},
		Bundle:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to obtain certificate for %s: %w", domainName, err)
	}

	// 6. Install on local disk for the front proxy to pick up
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "fullchain.pem"), certs.Certificate, 0o600); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "privkey.pem"), certs.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	p.Logger.Info("✅ SSL Certificate successfully provisioned and installed",
		slog.String("domain", domainName),
		slog.String("dir", outDir))
	return nil
}
