package main

// wasmkit — run a WASM contract against a file-backed storage region.
//
// Sub-commands:
//   instantiate – run the contract's instantiate entry once, creating the region
//   invoke      – run a process message against the region
//   query       – run a read-only query (never committed)
//   serve       – expose process/query over a local HTTP gateway
//
// Env variables (optionally from .env):
//   WASMKIT_REGION_PATH – path to the region file
//   WASMKIT_REGION_SIZE – region size in bytes
//   WASMKIT_GAS_LIMIT   – per-invocation gas limit
//   WASMKIT_LOG_LEVEL   – trace|debug|info|warn|error

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wasmkit/core"
	"wasmkit/pkg/config"
	"wasmkit/pkg/utils"
)

var (
	logger = logrus.StandardLogger()

	flagConfig string
	flagWasm   string
	flagMsg    string
	flagSender string
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{Use: "wasmkit", Short: "run WASM contracts against a storage region"}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagWasm, "wasm", "", "path to the contract wasm blob")
	rootCmd.PersistentFlags().StringVar(&flagMsg, "msg", "{}", "JSON message for the entry point")
	rootCmd.PersistentFlags().StringVar(&flagSender, "sender", "", "hex address used as message sender")

	rootCmd.AddCommand(entryCmd(core.EntryInstantiate, "instantiate", "create the contract in a fresh region"))
	rootCmd.AddCommand(entryCmd(core.EntryProcess, "invoke", "execute a state-mutating message"))
	rootCmd.AddCommand(entryCmd(core.EntryQuery, "query", "execute a read-only message"))
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// env bundles everything one invocation needs.
type env struct {
	cfg     *config.Config
	region  *core.FileStorage
	runtime *core.Runtime
	code    []byte
}

func setup() (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	if flagWasm == "" {
		return nil, fmt.Errorf("--wasm is required")
	}
	code, err := os.ReadFile(flagWasm)
	if err != nil {
		return nil, utils.Wrap(err, "read contract")
	}

	region, err := core.OpenFileStorage(cfg.Runtime.RegionPath, cfg.Runtime.RegionSize)
	if err != nil {
		return nil, err
	}
	storage := core.NewStorage(region, logger)

	chain := core.NewMockBlockchain()
	if flagSender != "" {
		sender, err := core.AddressFromHex(flagSender)
		if err != nil {
			return nil, utils.Wrap(err, "parse sender")
		}
		chain.SetMessageSender(sender)
	}

	return &env{
		cfg:     cfg,
		region:  region,
		runtime: core.NewRuntime(storage, core.NewBlockchain(chain), cfg.Runtime.GasLimit, logger),
		code:    code,
	}, nil
}

// run executes one entry point and commits the region when the invocation
// succeeded and mutate is set. A failed invocation is never committed; the
// region file keeps its previous state.
func (e *env) run(entry core.Entry, msg []byte, mutate bool) (*core.Receipt, error) {
	rec, err := e.runtime.Execute(e.code, entry, msg)
	if err != nil {
		return nil, err
	}
	if rec.Status && mutate {
		if err := e.region.Commit(); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func entryCmd(entry core.Entry, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			rec, err := e.run(entry, []byte(flagMsg), entry != core.EntryQuery)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if !rec.Status {
				os.Exit(1)
			}
			return nil
		},
	}
}
