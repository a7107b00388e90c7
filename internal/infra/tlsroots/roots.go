package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")
)

// Pool manages a pool of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
	added    int
}

// NewPool creates a pool seeded with the system roots.
// If system roots cannot be loaded, it starts empty.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// AddCertFile adds certificates from a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	if err := p.AddCertPEM(data); err != nil {
		return fmt.Errorf("tlsroots: %s: %w", path, err)
	}
	return nil
}

// AddCertPEM adds every CERTIFICATE block of pemData.
func (p *Pool) AddCertPEM(pemData []byte) error {
	var certsAdded int

	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		certsAdded++
	}

	if certsAdded == 0 {
		return ErrNoCertsFound
	}
	p.added += certsAdded
	return nil
}

// Added returns how many certificates were added on top of the system roots.
func (p *Pool) Added() int { return p.added }

// TLSConfig creates a client TLS config using this pool as root CAs.
func (p *Pool) TLSConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    p.certPool,
		MinVersion: tls.VersionTLS12,
	}
}

// ClientConfig returns the TLS config for the platform client.
// An empty caFile yields nil, meaning the Go defaults apply.
func ClientConfig(caFile string) (*tls.Config, error) {
	if caFile == "" {
		return nil, nil
	}
	p := NewPool()
	if err := p.AddCertFile(caFile); err != nil {
		return nil, err
	}
	return p.TLSConfig(), nil
}
