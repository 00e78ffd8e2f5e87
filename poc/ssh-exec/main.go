package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// POC: one-shot command execution over SSH with public-key auth.
//
// Muster's entire remote control plane is "run the muster CLI on a worker
// over SSH and read its exit status". Before committing to x/crypto/ssh this
// POC validates the three things the orchestrator depends on:
//
//  1. connect + authenticate with an on-disk private key under a hard timeout
//  2. capture the command's combined stdout/stderr
//  3. distinguish "command ran and exited non-zero" from "host unreachable"

func main() {
	host := flag.String("host", "", "worker address (required)")
	user := flag.String("user", os.Getenv("USER"), "remote user")
	key := flag.String("key", os.Getenv("HOME")+"/.ssh/id_ed25519", "private key file")
	port := flag.Int("port", 22, "ssh port")
	command := flag.String("command", "true", "command to run")
	timeout := flag.Duration("timeout", 10*time.Second, "end-to-end timeout")
	flag.Parse()

	log.Println("=== Muster SSH Exec POC ===")
	if *host == "" {
		log.Fatal("❌ -host is required\nUsage: go run . -host 10.0.0.11 -command 'uname -a'")
	}
	log.Printf("Target:  %s@%s:%d", *user, *host, *port)
	log.Printf("Command: %s", *command)
	log.Println()

	log.Println("1. Loading private key...")
	keyData, err := os.ReadFile(*key)
	if err != nil {
		log.Fatalf("Failed to read key: %v", err)
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		log.Fatalf("Failed to parse key: %v\n"+
			"Note: encrypted keys are not supported; muster expects a plain\n"+
			"deployment key provisioned outside the tool.", err)
	}
	log.Printf("✓ Key loaded (%s)", signer.PublicKey().Type())

	log.Println("\n2. Connecting...")
	cfg := &ssh.ClientConfig{
		User:            *user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         *timeout,
	}
	target := net.JoinHostPort(*host, fmt.Sprintf("%d", *port))
	start := time.Now()
	client, err := ssh.Dial("tcp", target, cfg)
	if err != nil {
		log.Fatalf("❌ Unreachable: %v\n"+
			"This is the error class muster logs per worker and keeps going.", err)
	}
	defer client.Close()
	log.Printf("✓ Connected and authenticated in %s", time.Since(start).Round(time.Millisecond))

	log.Println("\n3. Running command...")
	session, err := client.NewSession()
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}
	defer session.Close()

	out, err := session.CombinedOutput(*command)
	output := strings.TrimSpace(string(out))

	switch {
	case err == nil:
		log.Println("✓ Command exited 0")
	default:
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			log.Printf("✓ Command ran and exited %d (reachable, non-zero: a job outcome, not a transport error)",
				exitErr.ExitStatus())
		} else {
			log.Fatalf("❌ Session died without an exit status: %v", err)
		}
	}

	if output != "" {
		log.Println("\n=== Combined output ===")
		for _, line := range strings.Split(output, "\n") {
			log.Printf("  %s", line)
		}
	}
}
