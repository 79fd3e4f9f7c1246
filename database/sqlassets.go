// Package sqlassets embeds the schema DDL so binaries stay self-contained.
package sqlassets

import _ "embed"

//go:embed schema/core/parishes.sql
var ParishesSQL string

//go:embed schema/core/community.sql
var CommunitySQL string

//go:embed schema/core/events.sql
var EventsSQL string

//go:embed schema/core/tithe.sql
var TitheSQL string
