package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pixelfort/api/internal/adapters/dnscheck"
)

// Deployment preflight. Run before rollout to catch a broken environment or a
// customer domain whose DNS never got pointed at us.
func main() {
	domainFlag := flag.String("domain", "", "also verify this hostname's CNAME points at the edge")
	flag.Parse()

	fmt.Println("🔍 Pixelfort: Running deployment preflight...")

	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️  Warning: No .env file found, checking system env vars...")
	}

	hasErrors := false

	// --- Check 1: JWT Secret Strength ---
	jwtSec := os.Getenv("JWT_SECRET")
	if len(jwtSec) < 32 {
		fmt.Printf("❌ FAIL: JWT_SECRET is too short. Min: 32 characters (Current: %d)\n", len(jwtSec))
		hasErrors = true
	} else {
		fmt.Println("✅ PASS: JWT secret length is sufficient.")
	}

	// --- Check 2: Database Credentials ---
	dbURL := os.Getenv("DATABASE_URL")
	if strings.Contains(dbURL, "dev_password") {
		fmt.Println("❌ FAIL: DATABASE_URL is using default development credentials.")
		hasErrors = true
	} else if dbURL == "" {
		fmt.Println("❌ FAIL: DATABASE_URL must be set.")
		hasErrors = true
	} else {
		fmt.Println("✅ PASS: Database URL does not use default credentials.")
	}

	// --- Check 3: Provider Credentials ---
	if os.Getenv("CF_API_TOKEN") == "" || os.Getenv("CF_ZONE_ID") == "" {
		fmt.Println("❌ FAIL: CF_API_TOKEN and CF_ZONE_ID must both be set.")
		hasErrors = true
	} else {
		fmt.Println("✅ PASS: Hostname provider credentials are present.")
	}

	// --- Check 4: Blob Storage ---
	if os.Getenv("S3_BUCKET") == "" {
		fmt.Println("❌ FAIL: S3_BUCKET must be set.")
		hasErrors = true
	} else {
		fmt.Println("✅ PASS: Image bucket is configured.")
	}

	// --- Check 5 (optional): Customer Domain DNS ---
	if *domainFlag != "" {
		edgeTarget := os.Getenv("EDGE_TARGET")
		if edgeTarget == "" {
			edgeTarget = "edge.pixelfort.io"
		}
		checker := dnscheck.New(os.Getenv("DNS_RESOLVER"), edgeTarget)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ok, err := checker.PointsAtEdge(ctx, *domainFlag)
		switch {
		case err != nil:
			fmt.Printf("❌ FAIL: DNS lookup for %s errored: %v\n", *domainFlag, err)
			hasErrors = true
		case !ok:
			fmt.Printf("❌ FAIL: %s does not CNAME to %s.\n", *domainFlag, edgeTarget)
			hasErrors = true
		default:
			fmt.Printf("✅ PASS: %s points at the edge.\n", *domainFlag)
		}
	}

	// --- Final Verdict ---
	fmt.Println("--------------------------------------------------")
	if hasErrors {
		fmt.Println("🚨 VERDICT: PREFLIGHT FAILED.")
		fmt.Println("Fix the errors above before attempting deployment.")
		os.Exit(1)
	}
	fmt.Println("🚀 VERDICT: PREFLIGHT PASSED. System is ready for launch.")
}
