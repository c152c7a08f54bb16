// Package middleware wraps snapshot stores with extra behavior, such as
// encrypting delivered trees at rest.
package middleware
