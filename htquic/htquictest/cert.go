package htquictest

import (
	"crypto/ed25519"
	crand "crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/gordian-engine/hashtree/htquic"
)

// TLSConfigs holds a matched pair of TLS configs:
// the client trusts exactly the server's self-signed certificate.
type TLSConfigs struct {
	Server, Client *tls.Config

	Cert *x509.Certificate
}

// GenerateTLSConfigs creates a fresh ed25519 self-signed certificate
// valid for localhost and 127.0.0.1,
// and returns server and client configs using it with [htquic.NextProto].
func GenerateTLSConfigs() (TLSConfigs, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return TLSConfigs{}, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	serial, err := crand.Int(crand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return TLSConfigs{}, fmt.Errorf("failed to generate serial number: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,

		Subject: pkix.Name{
			Organization: []string{"Test"},
			CommonName:   "localhost",
		},
		NotBefore: time.Now().Add(-15 * time.Second),
		NotAfter:  time.Now().Add(time.Hour),

		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},

		BasicConstraintsValid: true,
		IsCA:                  true,

		DNSNames:    []string{"localhost"},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1)},
	}

	der, err := x509.CreateCertificate(nil, template, template, pub, priv)
	if err != nil {
		return TLSConfigs{}, fmt.Errorf("failed to create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return TLSConfigs{}, fmt.Errorf("failed to parse certificate from DER: %w", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(cert)

	return TLSConfigs{
		Server: &tls.Config{
			Certificates: []tls.Certificate{
				{
					Certificate: [][]byte{der},
					PrivateKey:  priv,

					Leaf: cert,
				},
			},
			NextProtos: []string{htquic.NextProto},
		},
		Client: &tls.Config{
			RootCAs:    pool,
			ServerName: "localhost",
			NextProtos: []string{htquic.NextProto},
		},

		Cert: cert,
	}, nil
}
