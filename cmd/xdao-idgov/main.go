package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "identity":
		return cmdIdentity(args[1:], out, errOut)
	case "proposal":
		return cmdProposal(args[1:], out, errOut)
	case "propose":
		return cmdPropose(args[1:], out, errOut)
	case "approve":
		return cmdApprove(args[1:], out, errOut)
	case "execute":
		return cmdExecute(args[1:], out, errOut)
	case "tx":
		return cmdTx(args[1:], out, errOut)
	case "journal":
		return cmdJournal(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-idgov: multi-controller DID governance CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-idgov identity show --id <identity>")
	fmt.Fprintln(w, "  xdao-idgov proposal show --id <proposal>")
	fmt.Fprintln(w, "  xdao-idgov propose update --identity <id> --controller <c> --doc <packed.json> [--expires <epoch>]")
	fmt.Fprintln(w, "  xdao-idgov propose deactivate --identity <id> --controller <c> [--expires <epoch>]")
	fmt.Fprintln(w, "  xdao-idgov propose delete --identity <id> --controller <c> [--expires <epoch>]")
	fmt.Fprintln(w, "  xdao-idgov approve --proposal <id> --controller <c>")
	fmt.Fprintln(w, "  xdao-idgov execute --proposal <id> --controller <c>")
	fmt.Fprintln(w, "  xdao-idgov tx decode <payload-file>")
	fmt.Fprintln(w, "  xdao-idgov journal list")
	fmt.Fprintln(w, "  xdao-idgov journal resubmit <tx-cid>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common flags:")
	fmt.Fprintln(w, "  --config <file.toml>   load configuration (IDGOV_* env vars override it)")
	fmt.Fprintln(w, "  --ledger <addr>        ledger gRPC address")
	fmt.Fprintln(w, "  --retries <n>          attempts for retryable failures (default 3)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - results and errors are printed as JSON")
	fmt.Fprintln(w, "  - version conflicts and transport failures are retried with backoff")
	fmt.Fprintln(w, "  - journal commands need journal.backend set to localfs, bolt or all")
}
