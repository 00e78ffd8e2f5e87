package main

import (
	"fmt"

	// Import all Muster dependencies to measure binary size
	_ "github.com/gorilla/mux"
	_ "github.com/prometheus/client_golang/prometheus"
	_ "github.com/rs/zerolog"
	_ "github.com/spf13/cobra"
	_ "go.etcd.io/bbolt"
	_ "golang.org/x/crypto/ssh"
	_ "gopkg.in/yaml.v3"
)

func main() {
	fmt.Println("Muster Binary Size POC")
	fmt.Println("This minimal program imports all major Muster dependencies.")
	fmt.Println("Build and compare against the real binary:")
	fmt.Println("  go build -o poc-size . && go build -o muster ../../cmd/muster")
	fmt.Println("  ls -lh poc-size muster")
}
