package ecsim

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/protocol"
	"github.com/urfave/cli"
)

func categoryNameFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "category", Usage: "curve category, e.g. secg"},
		cli.StringFlag{Name: "name", Usage: "curve name, e.g. secp256k1"},
	}
}

func keyCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "keygen",
			Usage: "Generate a private/public keypair on a named curve",
			Flags: categoryNameFlags(),
			Action: func(c *cli.Context) error {
				db, params, err := requireParams(c)
				if err != nil {
					return err
				}
				defer db.Close()

				m, err := buildMultiplier("ltr", params, 0)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if err := m.Init(context.Background(), params, params.Generator, params.Order.BitLen()); err != nil {
					return cli.NewExitError(err, 1)
				}
				priv, pub, err := protocol.Keygen(context.Background(), m, params)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				privEnc := protocol.ExportPrivateKey(priv, params.Order)
				pubEnc, err := protocol.ExportPoint(pub, params.Curve.Field)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				fmt.Fprintf(c.App.Writer, "private: %s\n", privEnc)
				fmt.Fprintf(c.App.Writer, "public:  %s\n", pubEnc)
				return nil
			},
		},
		{
			Name:  "ecdh",
			Usage: "Perform non-interactive Diffie-Hellman",
			Flags: append(categoryNameFlags(),
				cli.StringFlag{Name: "priv", Usage: "base58-encoded local private scalar (from keygen)"},
				cli.StringFlag{Name: "peer", Usage: "base58-encoded peer public point (from keygen)"},
			),
			Action: func(c *cli.Context) error {
				db, params, err := requireParams(c)
				if err != nil {
					return err
				}
				defer db.Close()

				priv, err := protocol.ImportPrivateKey(c.String("priv"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				peer, err := protocol.ImportPoint(c.String("peer"), params.Curve.CoordinateModel, params.Curve.Field)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				m, err := buildMultiplier("ltr", params, 0)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if err := m.Init(context.Background(), params, peer, params.Order.BitLen()); err != nil {
					return cli.NewExitError(err, 1)
				}
				secret, err := protocol.ECDH(context.Background(), m, priv, params.Curve.Field, sha256.New)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				fmt.Fprintf(c.App.Writer, "shared secret: %s\n", hex.EncodeToString(secret))
				return nil
			},
		},
		ecdsaCommand(),
	}
}

func ecdsaCommand() cli.Command {
	return cli.Command{
		Name:  "ecdsa",
		Usage: "Sign or verify with ECDSA",
		Subcommands: []cli.Command{
			{
				Name:  "sign",
				Usage: "Sign a digest with a private key",
				Flags: append(categoryNameFlags(),
					cli.StringFlag{Name: "priv", Usage: "base58-encoded private scalar (from keygen)"},
					cli.StringFlag{Name: "digest", Usage: "hex-encoded message digest"},
				),
				Action: func(c *cli.Context) error {
					db, params, err := requireParams(c)
					if err != nil {
						return err
					}
					defer db.Close()

					priv, err := protocol.ImportPrivateKey(c.String("priv"))
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					digest, err := hex.DecodeString(c.String("digest"))
					if err != nil {
						return cli.NewExitError(fmt.Errorf("ecsim: bad --digest: %w", err), 1)
					}
					signer, err := buildSigner(params, priv, nil)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					sig, err := signer.Sign(context.Background(), digest, sha256.New)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					der, err := sig.ToDER()
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					fmt.Fprintf(c.App.Writer, "signature: %s\n", hex.EncodeToString(der))
					return nil
				},
			},
			{
				Name:  "verify",
				Usage: "Verify an ECDSA signature against a public key",
				Flags: append(categoryNameFlags(),
					cli.StringFlag{Name: "pub", Usage: "base58-encoded public point (from keygen)"},
					cli.StringFlag{Name: "digest", Usage: "hex-encoded message digest"},
					cli.StringFlag{Name: "sig", Usage: "hex-encoded DER signature (from ecdsa sign)"},
				),
				Action: func(c *cli.Context) error {
					db, params, err := requireParams(c)
					if err != nil {
						return err
					}
					defer db.Close()

					pub, err := protocol.ImportPoint(c.String("pub"), params.Curve.CoordinateModel, params.Curve.Field)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					digest, err := hex.DecodeString(c.String("digest"))
					if err != nil {
						return cli.NewExitError(fmt.Errorf("ecsim: bad --digest: %w", err), 1)
					}
					sigBytes, err := hex.DecodeString(c.String("sig"))
					if err != nil {
						return cli.NewExitError(fmt.Errorf("ecsim: bad --sig: %w", err), 1)
					}
					sig, err := protocol.SignatureFromDER(sigBytes)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					signer, err := buildSigner(params, nil, pub)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					ok, err := signer.Verify(context.Background(), sig, digest)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					fmt.Fprintf(c.App.Writer, "valid: %t\n", ok)
					return nil
				},
			},
		},
	}
}

// buildSigner wires a protocol.Signer bound to params, with GenMult always
// Init'd on the generator and PubMult Init'd on pub when verifying a
// signature (sign only ever needs GenMult).
func buildSigner(params *curve.DomainParameters, priv *big.Int, pub *curve.Point) (*protocol.Signer, error) {
	add, _, _ := formula.StandardAffine(params.Curve.CoordinateModel)
	genMult, err := buildMultiplier("ltr", params, 0)
	if err != nil {
		return nil, err
	}
	if err := genMult.Init(context.Background(), params, params.Generator, params.Order.BitLen()); err != nil {
		return nil, err
	}
	s := &protocol.Signer{GenMult: genMult, Add: add, Params: params, PrivKey: priv}
	if pub != nil {
		pubMult, err := buildMultiplier("ltr", params, 0)
		if err != nil {
			return nil, err
		}
		if err := pubMult.Init(context.Background(), params, pub, params.Order.BitLen()); err != nil {
			return nil, err
		}
		s.PubMult = pubMult
		s.PubKey = pub
	}
	return s, nil
}
