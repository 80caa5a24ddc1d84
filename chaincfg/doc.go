// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines chain configuration parameters.
//
// In addition to the main network, which is intended for the transfer of
// monetary value, there also exists two standard networks: regression test and
// testnet.  These networks are incompatible with each other and software should
// handle errors where input intended for one network is used on an application
// instance running on a different network.
//
// The parameters are immutable once returned.  Each call to one of the network
// functions, such as MainNetParams, returns a fresh instance so callers may not
// accidentally mutate consensus values shared with other callers.
package chaincfg
