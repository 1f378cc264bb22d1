package model

// Entity is the object side of an authorization decision or relationship.
type Entity struct {
	Type string
	ID   string
}

// Subject is the actor side of an authorization decision or relationship.
type Subject struct {
	Type string
	ID   string
}

const (
	EntityPartner    = "partner"
	EntityDepartment = "department"
	EntityProject    = "project"
	EntityUser       = "user"
)
