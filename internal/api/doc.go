// Package api exposes the agent-facing tool endpoints: exchange quotes between
// supported assets and unsigned deposit payloads for the intents contract.
// Every failure leaves through a single boundary that renders {"error": "..."}
// with a 400 or 500 status.
package api
