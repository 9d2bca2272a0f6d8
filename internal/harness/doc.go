// Package harness runs end-to-end query scenarios.
//
// A scenario names a catalog, the fixtures to seed, one GraphQL request and
// the assertions its response must satisfy:
//
//	name: get_post_nested
//	description: a post with its author and pages in one query
//	catalog: ../../catalog
//	fixtures: ../../fixtures/blog.yaml
//	query: |
//	  { getPost(postId: 1) { title author { firstName } pages { content } } }
//	assertions:
//	  - type: no_errors
//	  - type: equals
//	    path: getPost.author.firstName
//	    value: Ada
//	  - type: joins
//	    count: 2
//
// Each scenario runs against a fresh in-memory database. Every plan the
// request compiles is recorded, so assertions can inspect the query shape
// as well as the response. Golden comparison snapshots the response and the
// plans as canonical JSON.
package harness
