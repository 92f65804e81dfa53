package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/urnwait/urnwait/approx"
	"github.com/urnwait/urnwait/hist"
	"github.com/urnwait/urnwait/ppf"
	"github.com/urnwait/urnwait/waiting"
)

const Version = "0.1.0"

type progPair struct {
	help string
	main func()
}

var progs = map[string]progPair{
	"exact":  {"exact pmf/cdf tables of the draw on which A+1 distinct red balls are first seen", waiting.Main},
	"approx": {"closed-form expectation, variance and quantile approximations", approx.Main},
	"ppf":    {"compare exact quantiles with the approximations and plot n vs P(X <= n)", ppf.Main},
	"hist":   {"bar chart of P(X = t) from one or more tables", hist.Main},
}

func printProgs(wtr io.Writer, code int) {
	fmt.Fprintf(wtr, "urnwait Version: %s\n\n", Version)
	keys := make([]string, 0, len(progs))
	l := 5
	for k := range progs {
		keys = append(keys, k)
		if len(k) > l {
			l = len(k)
		}
	}
	fmtr := "%-" + strconv.Itoa(l) + "s : %s\n"
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(wtr, fmtr, k, progs[k].help)
	}
	os.Exit(code)
}

func main() {
	if len(os.Args) < 2 {
		printProgs(os.Stderr, 1)
	}
	switch os.Args[1] {
	case "-h", "--help", "help":
		printProgs(os.Stdout, 0)
	case "-v", "--version", "version":
		fmt.Println(Version)
		return
	}
	p, ok := progs[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printProgs(os.Stderr, 1)
	}
	// remove the prog name from the call
	os.Args = append(os.Args[:1], os.Args[2:]...)
	p.main()
}
