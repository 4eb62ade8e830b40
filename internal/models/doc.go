// Package models defines the core domain models for SalonMate.
//
// # Tenancy
//
// Every salon-facing record belongs to a Shop. Users reach a shop either as
// its owner or through a TeamMember row; the role on that relationship
// decides which mutations are allowed.
//
// # Models
//
//   - User: a registered account (owner or staff of one or more shops)
//   - Shop: a business location, the tenant boundary
//   - Review: a customer review ingested from Google, Naver or Kakao
//   - Post: an Instagram post drafted, scheduled or published through the app
//   - TeamMember: a user (or pending invitation) with a role on a shop
//   - MediaItem: an image or video referenced by posts
//   - Subscription: the shop's plan and its AI generation allowance
//
// # Conventions
//
// Timestamps are Unix seconds (int64); zero means "not set". Relationships
// use ID strings rather than pointers.
package models
