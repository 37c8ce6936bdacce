/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package crptapi is a client for the document registration API of the CRPT ("Chestny ZNAK") marking system.
//
// Client.CreateDocument submits an "introduce goods" (LP_INTRODUCE_GOODS) document. Every submission
// acquires a permit from a rate limiter first, so the API's request quota is never exceeded even when many
// goroutines submit documents at once. A submission is a single POST request: any status other than 200 OK
// is returned as *UnexpectedStatusError and is never retried by the client.
package crptapi
