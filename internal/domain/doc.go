// Package domain contains the core business entities, value objects, and
// domain logic of the content platform: study modules, their items, access
// levels, library entries, and per-item learning progress. It is independent
// of any specific infrastructure or delivery mechanism.
package domain
