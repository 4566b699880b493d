// Package services implements the driving port interfaces.
// Services contain the RAG pipeline (chunk, embed, upsert on the way in;
// embed, rank, assemble, complete on the way out) and orchestrate calls
// to driven ports (adapters).
//
// Services are pure Go; every network call goes through a driven port.
package services
