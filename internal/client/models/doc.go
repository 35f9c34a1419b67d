// Package models defines the client-side data model of the Mi Árbol client:
// session identity and roles, trees and their map markers, the canonical
// tree filter key, and the DTOs of the thin feature endpoints.
package models
