// =============================================================================
// Party Ledger Builder - Main Entry Point
// =============================================================================
//
// USAGE:
//   ledger refresh    - Rebuild the party ledger workbook
//   ledger fetch      - Show what each source yields, without writing
//   ledger validate   - Validate configuration files without processing
//   ledger version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Pipeline packages (parsing, mapping, ledgers, rendering)
//   - pkg/       : Shared file-management utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/party-ledger/cmd"
)

func main() {
	cmd.Execute()
}
