package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	fxcbor "github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"animica/core"
	"animica/pkg/config"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	// .env is optional; a node run from a packaged binary with no local env
	// file is the common case, not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to load .env")
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logrus.WithError(err).Warn("falling back to built-in defaults; no config file found")
		defaults := config.DefaultConfig()
		cfg = &defaults
	}
	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logrus.SetLevel(lvl)
	}

	rootCmd := &cobra.Command{Use: "animicad"}
	rootCmd.AddCommand(txCmd())
	rootCmd.AddCommand(chainCmd(cfg))
	rootCmd.AddCommand(codecCmd())
	rootCmd.AddCommand(configCmd())
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// --- tx ---------------------------------------------------------------

func txCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tx", Short: "build, sign and verify transactions"}
	cmd.AddCommand(txBuildTransferCmd())
	cmd.AddCommand(txSignCmd())
	cmd.AddCommand(txVerifyCmd())
	return cmd
}

func txBuildTransferCmd() *cobra.Command {
	var chainID, nonce, gasPrice, gasLimit uint64
	var senderHex, toHex, amountStr, dataHex, out string

	cmd := &cobra.Command{
		Use:   "build-transfer",
		Short: "build an unsigned TRANSFER and write its canonical CBOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := addressFromHex(senderHex)
			if err != nil {
				return fmt.Errorf("--sender: %w", err)
			}
			to, err := addressFromHex(toHex)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			amount, err := amountFromDecimal(amountStr)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			data, err := hexOrEmpty(dataHex)
			if err != nil {
				return fmt.Errorf("--data: %w", err)
			}
			u, err := core.BuildTransfer(chainID, nonce, gasPrice, gasLimit, sender, to, amount, data)
			if err != nil {
				return err
			}
			enc, err := u.ToCBOR()
			if err != nil {
				return err
			}
			return writeOut(out, enc)
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain-id", 1, "chain id")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "sender nonce")
	cmd.Flags().Uint64Var(&gasPrice, "gas-price", 1, "gas price")
	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 50_000, "gas limit")
	cmd.Flags().StringVar(&senderHex, "sender", "", "32-byte sender address, hex encoded")
	cmd.Flags().StringVar(&toHex, "to", "", "32-byte recipient address, hex encoded")
	cmd.Flags().StringVar(&amountStr, "amount", "0", "transfer amount, decimal")
	cmd.Flags().StringVar(&dataHex, "data", "", "optional payload data, hex encoded")
	cmd.Flags().StringVar(&out, "out", "-", "output file, or - for stdout")
	return cmd
}

func txSignCmd() *cobra.Command {
	var unsignedPath, privHex, alg, out string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "sign an unsigned transaction with a PQ private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(unsignedPath)
			if err != nil {
				return err
			}
			u, err := core.UnsignedTxFromCBOR(raw)
			if err != nil {
				return fmt.Errorf("decode unsigned tx: %w", err)
			}
			priv, err := hex.DecodeString(privHex)
			if err != nil {
				return fmt.Errorf("--priv: %w", err)
			}
			sb, err := u.SignBytes()
			if err != nil {
				return err
			}

			var sig []byte
			var algID int
			switch alg {
			case "dilithium3":
				algID = core.AlgDilithium3
				sig, err = core.DilithiumSign(priv, sb)
			case "sphincs":
				algID = core.AlgSphincsSHAKE128s
				sig, err = core.SphincsSign(priv, sb)
			default:
				return fmt.Errorf("--alg must be dilithium3 or sphincs, got %q", alg)
			}
			if err != nil {
				return fmt.Errorf("sign: %w", err)
			}

			pub, err := derivePublicKey(alg, priv)
			if err != nil {
				return fmt.Errorf("derive public key: %w", err)
			}

			tx := core.Tx{Unsigned: u}
			tx = tx.WithSignature(core.PqSignature{AlgID: algID, PubKey: pub, Sig: sig})
			enc, err := tx.ToCBOR()
			if err != nil {
				return err
			}
			return writeOut(out, enc)
		},
	}
	cmd.Flags().StringVar(&unsignedPath, "unsigned", "", "path to an unsigned tx CBOR file")
	cmd.Flags().StringVar(&privHex, "priv", "", "PQ private key, hex encoded")
	cmd.Flags().StringVar(&alg, "alg", "dilithium3", "signature algorithm: dilithium3 or sphincs")
	cmd.Flags().StringVar(&out, "out", "-", "output file, or - for stdout")
	cmd.MarkFlagRequired("unsigned")
	cmd.MarkFlagRequired("priv")
	return cmd
}

func txVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [file]",
		Short: "verify a signed transaction's PQ signatures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tx, err := core.TxFromCBOR(raw)
			if err != nil {
				return fmt.Errorf("decode tx: %w", err)
			}
			if err := tx.Verify(); err != nil {
				fmt.Printf("INVALID: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("VALID", tx.Summary())
			return nil
		},
	}
	return cmd
}

// derivePublicKey always returns an error: the public half of a keypair
// cannot be regenerated from the private key alone for these schemes, and
// this CLI has no keygen command and no key store, so no ".pub" file or
// other source is consulted.
func derivePublicKey(alg string, _ []byte) ([]byte, error) {
	return nil, fmt.Errorf("public key must be supplied out of band for %s", alg)
}

// --- chain --------------------------------------------------------------

func chainCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{Use: "chain", Short: "inspect and import blocks"}
	cmd.AddCommand(chainImportCmd(cfg))
	cmd.AddCommand(chainGenesisCmd())
	return cmd
}

func chainImportCmd(cfg *config.Config) *cobra.Command {
	var rps float64
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "import one or more block CBOR files into a fresh in-memory ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := uuid.NewString()
			log := logrus.WithField("run_id", runID)

			if rps <= 0 {
				rps = cfg.Capabilities.SyscallRPS
			}
			limiter := rate.NewLimiter(rate.Limit(rps), 1)
			ctx := context.Background()

			ledger := core.NewLedger()
			importer := core.NewBlockImporter(ledger)
			for _, path := range args {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				res := importer.ImportBytes(raw)
				log.WithFields(logrus.Fields{
					"file":   path,
					"status": res.Status,
					"hash":   res.Hash.Hex(),
				}).Info("import result")
				if res.Status == core.ImportRejected {
					return fmt.Errorf("%s: %w", path, res.Err)
				}
			}
			head, ok := ledger.Head()
			if ok {
				log.WithFields(logrus.Fields{
					"height": head.Height,
					"hash":   head.Hash.Hex(),
				}).Info("import complete")
				fmt.Printf("head: height=%d hash=%s\n", head.Height, head.Hash.Hex())
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&rps, "rate-limit", 0, "max files imported per second (0 uses the config default)")
	return cmd
}

func chainGenesisCmd() *cobra.Command {
	var chainID uint64
	var theta uint64
	var out string
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "emit a minimal genesis block's canonical CBOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := core.Header{ChainID: chainID, Height: 0, Theta: theta}
			blk := core.Block{Header: h}
			enc, err := blk.ToCBOR()
			if err != nil {
				return err
			}
			return writeOut(out, enc)
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain-id", 1, "chain id")
	cmd.Flags().Uint64Var(&theta, "theta", 0, "genesis theta")
	cmd.Flags().StringVar(&out, "out", "-", "output file, or - for stdout")
	return cmd
}

// --- codec ----------------------------------------------------------------

func codecCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "codec", Short: "inspect canonical CBOR values"}
	cmd.AddCommand(codecInspectCmd())
	return cmd
}

// codecInspectCmd pretty-prints arbitrary CBOR as JSON for humans. It is
// explicitly NOT on the consensus path: fxamacker/cbor/v2 is a general-purpose
// decoder with its own tag and map-key handling, used here only for display.
func codecInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "decode a CBOR file and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var v interface{}
			if err := fxcbor.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			out, err := json.MarshalIndent(jsonable(v), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	return cmd
}

// jsonable rewrites the byte-slice and map[interface{}]interface{} shapes
// fxamacker/cbor/v2 produces into something encoding/json can render.
func jsonable(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return hex.EncodeToString(x)
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[fmt.Sprintf("%v", k)] = jsonable(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = jsonable(e)
		}
		return out
	default:
		return x
	}
}

// --- shared helpers --------------------------------------------------------

func addressFromHex(s string) (core.Address, error) {
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return core.Address{}, err
	}
	return core.AddressFromBytes(b)
}

func amountFromDecimal(s string) (core.Amount, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return core.Amount{}, fmt.Errorf("invalid decimal amount: %q", s)
	}
	return core.NewAmountFromBigEndian(n.Bytes())
}

func hexOrEmpty(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(trimHexPrefix(s))
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func writeOut(path string, data []byte) error {
	if path == "-" || path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// --- config -----------------------------------------------------------

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "inspect resolved node configuration"}
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var env, format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "print the resolved configuration (files + environment) as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(env)
			if err != nil {
				logrus.WithError(err).Warn("no config file found; showing built-in defaults")
				defaults := config.DefaultConfig()
				cfg = &defaults
			}
			switch format {
			case "yaml":
				out, err := cfg.ToYAML()
				if err != nil {
					return err
				}
				fmt.Print(string(out))
			case "json":
				out, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			default:
				return fmt.Errorf("--format must be json or yaml, got %q", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "environment overlay name (e.g. staging); empty uses defaults only")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	return cmd
}
