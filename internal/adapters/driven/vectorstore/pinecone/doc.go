// Package pinecone implements driven.VectorStore over the Pinecone REST API.
//
// Index management (describe, create) goes to the control plane at
// api.pinecone.io; upserts, queries, deletes and stats go to the index's
// data-plane host, which is resolved from DescribeIndex when not configured.
// Every request carries the Api-Key header.
package pinecone
