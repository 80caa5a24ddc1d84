// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/6zip-project/dash/chaincfg"
	"github.com/6zip-project/dash/internal/blockchain"
	"github.com/6zip-project/dash/internal/bls"
	"github.com/6zip-project/dash/internal/llmq"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	flags "github.com/jessevdk/go-flags"
)

const (
	appVersion             = "0.1.0"
	defaultLogLevel        = "info"
	defaultLogDirname      = "logs"
	defaultLogFilename     = "chainverify.log"
	defaultSigCacheMaxSize = 100000
)

var (
	defaultHomeDir = btcutil.AppDataDir("chainverify", false)
	defaultLogDir  = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// config defines the configuration options for chainverify.
type config struct {
	ShowVersion     bool     `short:"V" long:"version" description:"Display version information and exit"`
	TestNet         bool     `long:"testnet" description:"Use the test network"`
	RegNet          bool     `long:"regtest" description:"Use the regression test network"`
	HeadersFile     string   `long:"headers" description:"File with one hex-encoded block header per line starting with the genesis header, each optionally followed by the hex-encoded transactions of the block"`
	CheckTx         string   `long:"checktx" description:"Hex-encoded transaction to validate against the verified chain tip"`
	Quorums         []string `long:"quorum" description:"Known quorum as type:hash:minedheight:pubkey; may be specified multiple times"`
	HeadersOnly     bool     `long:"headersonly" description:"Only validate the headers without connecting the blocks"`
	SkipPoW         bool     `long:"skippow" description:"Do not check header hashes against their targets (difficulty transitions are still enforced)"`
	DataDir         string   `short:"b" long:"datadir" description:"Directory to store the credit pool database in; no database is used when empty"`
	LogDir          string   `long:"logdir" description:"Directory to log output"`
	DebugLevel      string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	SigCacheMaxSize uint32   `long:"sigcachemaxsize" description:"The maximum number of entries in the quorum signature verification cache"`
	PoolCacheSize   uint32   `long:"poolcachesize" description:"The number of credit pools of recently connected blocks to keep in memory"`

	params  *chaincfg.Params
	quorums []*llmq.Quorum
}

// parseQuorum parses a quorum of the form type:hash:minedheight:pubkey where
// the type is the numeric quorum type, the hash is the hex-encoded hash of the
// quorum, and the public key is the hex-encoded quorum public key.
func parseQuorum(s string, params *chaincfg.Params) (*llmq.Quorum, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("quorum %q is not of the form "+
			"type:hash:minedheight:pubkey", s)
	}

	llmqType, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid quorum type %q: %w", parts[0], err)
	}
	if !params.HasLLMQ(chaincfg.LLMQType(llmqType)) {
		return nil, fmt.Errorf("quorum type %v is not configured on %s",
			chaincfg.LLMQType(llmqType), params.Name)
	}
	hash, err := chainhash.NewHashFromStr(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid quorum hash %q: %w", parts[1], err)
	}
	minedHeight, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || minedHeight < 0 {
		return nil, fmt.Errorf("invalid quorum mined height %q", parts[2])
	}
	pkBytes, err := hex.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("invalid quorum public key %q: %w", parts[3],
			err)
	}
	pk, err := bls.PublicKeyFromBytes(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid quorum public key %q: %w", parts[3],
			err)
	}

	return &llmq.Quorum{
		Type:        chaincfg.LLMQType(llmqType),
		Hash:        *hash,
		MinedHeight: minedHeight,
		PublicKey:   pk,
	}, nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// loadConfig initializes and parses the config using command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Override defaults with any specified command line options
//  3. Validate the resulting options
func loadConfig(args []string) (*config, error) {
	cfg := config{
		DebugLevel:      defaultLogLevel,
		LogDir:          defaultLogDir,
		SigCacheMaxSize: defaultSigCacheMaxSize,
		PoolCacheSize:   blockchain.DefaultCreditPoolCacheSize,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	if cfg.ShowVersion {
		fmt.Printf("chainverify version %s\n", appVersion)
		os.Exit(0)
	}

	// Multiple networks can't be selected simultaneously.
	cfg.params = chaincfg.MainNetParams()
	numNets := 0
	if cfg.TestNet {
		numNets++
		cfg.params = chaincfg.TestNetParams()
	}
	if cfg.RegNet {
		numNets++
		cfg.params = chaincfg.RegNetParams()
	}
	if numNets > 1 {
		return nil, errors.New("the testnet and regtest params can't be " +
			"used together -- choose one of the two")
	}

	if cfg.HeadersFile == "" {
		return nil, errors.New("a headers file must be specified with " +
			"--headers")
	}
	cfg.HeadersFile = cleanAndExpandPath(cfg.HeadersFile)
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	if cfg.DataDir != "" {
		cfg.DataDir = filepath.Join(cfg.DataDir, cfg.params.Name)
	}
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir),
		cfg.params.Name)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation.  After log rotation has been initialized, the
	// logger variables may be used.
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, err
	}

	for _, s := range cfg.Quorums {
		q, err := parseQuorum(s, cfg.params)
		if err != nil {
			return nil, err
		}
		cfg.quorums = append(cfg.quorums, q)
	}

	return &cfg, nil
}
