package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"intents-agent/sdk/go/intents"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "intents-agent base URL")
	amount := flag.String("amount", "10", "amount to quote and deposit")
	flag.Parse()

	client, err := intents.NewClient(*baseURL, nil)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	quote, err := client.GetQuote(ctx, intents.QuoteRequest{Amount: *amount, Token: "usdc", TokenOut: "btc"})
	if err != nil {
		log.Fatalf("get quote: %v", err)
	}
	fmt.Printf("%s %s -> %s %s (hash=%s, expires=%s)\n",
		quote.AmountIn, quote.TokenIn, quote.AmountOut, quote.TokenOut, quote.QuoteHash, quote.ExpirationTime)

	payload, err := client.DepositUSDC(ctx, *amount, "")
	if err != nil {
		log.Fatalf("deposit usdc: %v", err)
	}
	for _, action := range payload.Transactions {
		fmt.Printf("%s.%s gas=%s deposit=%s\n", action.ContractName, action.MethodName, action.Gas, action.Deposit)
	}
	fmt.Println(payload.Prompt)
}
