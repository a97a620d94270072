// Command guard-server sobe a API de projetos (serve) ou o proxy reverso
// (proxy), ambos atrás do request guard.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
