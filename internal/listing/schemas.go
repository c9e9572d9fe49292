package listing

import "sort"

func search() FilterSpec {
	return FilterSpec{Name: "search", Sentinel: ""}
}

func enum(name string, options ...string) FilterSpec {
	return FilterSpec{Name: name, Sentinel: NoFilter, Options: options}
}

func date(name string) FilterSpec {
	return FilterSpec{Name: name, Sentinel: ""}
}

var builtin = map[string]Schema{
	"users": {
		Entity:            "users",
		Resource:          "users",
		Collection:        "users",
		PageSize:          10,
		Filters:           []FilterSpec{search(), enum("status", "active", "inactive", "suspended"), enum("role", "user", "premium")},
		RequiredOnCreate:  []string{"name", "email", "password"},
		RequiredOnUpdate:  []string{"name", "email"},
		EmailFields:       []string{"email"},
		StatusSubresource: "status",
		Permission:        "users",
	},
	"experts": {
		Entity:            "experts",
		Resource:          "experts",
		Collection:        "experts",
		PageSize:          10,
		Filters:           []FilterSpec{search(), enum("status", "active", "inactive", "pending", "suspended"), {Name: "specialization", Sentinel: NoFilter}, enum("verified", "true", "false")},
		RequiredOnCreate:  []string{"name", "email", "specialization"},
		RequiredOnUpdate:  []string{"name", "email", "specialization"},
		EmailFields:       []string{"email"},
		StatusSubresource: "verify",
		Permission:        "experts",
	},
	"bookings": {
		Entity:            "bookings",
		Resource:          "bookings",
		Collection:        "bookings",
		PageSize:          10,
		Filters:           []FilterSpec{search(), enum("status", "pending", "confirmed", "completed", "cancelled"), {Name: "paymentStatus", Sentinel: NoFilter, Options: []string{"pending", "paid", "refunded", "failed"}}, date("startDate"), date("endDate")},
		RequiredOnCreate:  []string{"userId", "expertId", "scheduledAt"},
		RequiredOnUpdate:  []string{"status"},
		StatusSubresource: "status",
		Permission:        "bookings",
	},
	"payments": {
		Entity:            "payments",
		Resource:          "payments",
		Collection:        "payments",
		PageSize:          10,
		Filters:           []FilterSpec{search(), enum("status", "pending", "completed", "failed", "refunded"), enum("method", "card", "upi", "wallet", "netbanking"), date("startDate"), date("endDate")},
		RequiredOnUpdate:  []string{"status"},
		StatusSubresource: "refund",
		Permission:        "payments",
	},
	"subscriptions": {
		Entity:            "subscriptions",
		Resource:          "subscriptions",
		Collection:        "plans",
		PageSize:          10,
		Filters:           []FilterSpec{search(), enum("status", "active", "inactive"), enum("billingCycle", "monthly", "quarterly", "yearly")},
		RequiredOnCreate:  []string{"name", "price", "billingCycle"},
		RequiredOnUpdate:  []string{"name", "price", "billingCycle"},
		StatusSubresource: "status",
		Permission:        "subscriptions",
	},
	"content": {
		Entity:            "content",
		Resource:          "content",
		Collection:        "content",
		PageSize:          12,
		Filters:           []FilterSpec{search(), enum("type", "article", "video", "audio", "program"), {Name: "category", Sentinel: NoFilter}, enum("status", "draft", "published", "archived")},
		RequiredOnCreate:  []string{"title", "type", "category"},
		RequiredOnUpdate:  []string{"title", "type", "category"},
		StatusSubresource: "publish",
		Permission:        "content",
	},
	"admins": {
		Entity:            "admins",
		Resource:          "admins",
		Collection:        "admins",
		PageSize:          10,
		Filters:           []FilterSpec{search(), enum("role", "super_admin", "admin", "moderator"), enum("status", "active", "inactive")},
		RequiredOnCreate:  []string{"name", "email", "password", "role"},
		RequiredOnUpdate:  []string{"name", "email", "role"},
		EmailFields:       []string{"email"},
		StatusSubresource: "status",
		Permission:        "admins",
	},
}

// Lookup returns the built-in schema for entity.
func Lookup(entity string) (Schema, bool) {
	s, ok := builtin[entity]
	if !ok {
		return Schema{}, false
	}
	s.Filters = append([]FilterSpec(nil), s.Filters...)
	return s, true
}

// Entities lists the built-in entity names in stable order.
func Entities() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
