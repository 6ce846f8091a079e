package config

// document is a generic view of a decoded JSON object. A null object behaves
// like an empty one, so its required children are reported as missing.
type document map[string]any

func (d document) has(key string) bool {
	_, ok := d[key]
	return ok
}

// child returns the object under key. A missing key, or one holding anything
// but an object, yields nil.
func (d document) child(key string) document {
	switch v := d[key].(type) {
	case map[string]any:
		return v
	case nil:
		if d.has(key) {
			return document{}
		}
	}

	return nil
}

// list returns the objects of the array under key. Items that are not
// objects are returned as nil documents so indexes are kept.
func (d document) list(key string) []document {
	items, _ := d[key].([]any)

	docs := make([]document, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		docs = append(docs, m)
	}

	return docs
}
