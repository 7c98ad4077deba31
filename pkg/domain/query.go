package domain

// Field is one entry of a query projection. Children select nested fields.
type Field struct {
	Name     string  `json:"name"`
	Children []Field `json:"children,omitempty"`
}

// QueryDescriptor identifies a named collection and the fields to project.
type QueryDescriptor struct {
	Collection string  `json:"collection"`
	Fields     []Field `json:"fields"`
}

// CardsCollection is the collection queried by the home screen.
const CardsCollection = "cardsCollection"

// assetFields is the projection shared by card images and logos.
func assetFields() []Field {
	return []Field{
		{Name: "title"},
		{Name: "description"},
		{Name: "contentType"},
		{Name: "fileName"},
		{Name: "size"},
		{Name: "url"},
		{Name: "width"},
		{Name: "height"},
	}
}

// CardsQuery returns the descriptor for the "continue learning" cards.
func CardsQuery() QueryDescriptor {
	return QueryDescriptor{
		Collection: CardsCollection,
		Fields: []Field{
			{Name: "title"},
			{Name: "subtitle"},
			{Name: "image", Children: assetFields()},
			{Name: "caption"},
			{Name: "logo", Children: assetFields()},
			{Name: "content"},
		},
	}
}
