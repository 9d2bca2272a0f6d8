// Package catalog holds entity and relation metadata.
//
// Entities are declared in CUE:
//
//	entity: Post: {
//		table:   "posts"
//		plural:  "Posts"
//		primary: "postId"
//		fields: {postId: "int", userId: "int", title: "string"}
//		relations: author: {target: "User", kind: "many-to-one", local: "userId", remote: "userId"}
//		args: {identify: ["postId"], filter: ["userId", "title"]}
//	}
//
// The catalog is built once at startup and is read-only afterwards.
package catalog
