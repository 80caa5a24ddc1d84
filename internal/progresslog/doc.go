// Copyright (c) 2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package progresslog provides periodic logging for header and block processing.

Tests are included to ensure proper functionality.

## Feature Overview

- Maintains cumulative totals about blocks between each logging interval
  - Total number of blocks
  - Total number of transactions
  - Total number of asset locks
  - Total number of asset unlocks
- Maintains the cumulative number of headers between each logging interval
- Logs all cumulative data every 10 seconds
- Immediately logs any outstanding data when forced by the caller
*/
package progresslog
