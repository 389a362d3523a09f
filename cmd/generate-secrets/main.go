package main

import (
	"fmt"
	"log"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/utils"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret Generator for the Route Editor")
	fmt.Println("===========================================")
	fmt.Println()

	jwtSecret, serviceToken, err := utils.GenerateServiceSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Secrets generated successfully!")
	fmt.Println()
	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", jwtSecret)
	fmt.Printf("ROUTE_API_SERVICE_TOKEN=%s\n", serviceToken)
	fmt.Println()
	fmt.Println("IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
