// Command demoserver starts the a11yscan demo server.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/avelines/a11yscan/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   a11yscan Demo Server")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("This server provides pages with predictable")
	fmt.Println("accessibility defects for scanning against,")
	fmt.Println("plus endpoints that misbehave on purpose:")
	fmt.Println()
	fmt.Println("  /broken   - violates most of the ruleset")
	fmt.Println("  /clean    - should scan clean")
	fmt.Println("  /forms    - unlabeled form controls")
	fmt.Println("  /flaky    - fails twice, then succeeds")
	fmt.Println("  /slow     - three second response delay")
	fmt.Println("  /picky    - rejects the first browser user agent")
	fmt.Println("  /redirect - one redirect to /clean")
	fmt.Println()

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
