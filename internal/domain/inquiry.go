package domain

// InquiryItem is the product summary a visitor keeps in the inquiry list.
type InquiryItem struct {
	ID        int64  `json:"id,string"`
	Name      string `json:"name"`
	MainImage string `json:"mainImage"`
}

// Inquiry is an ordered, duplicate-free list of products a visitor wants to
// ask about.
type Inquiry struct {
	Items []InquiryItem `json:"items"`
}

// Add appends the item unless a product with the same id is already listed.
func (q *Inquiry) Add(item InquiryItem) bool {
	if q.Contains(item.ID) {
		return false
	}
	q.Items = append(q.Items, item)
	return true
}

// Remove drops the product with the given id.
func (q *Inquiry) Remove(id int64) {
	kept := q.Items[:0]
	for _, it := range q.Items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	q.Items = kept
}

func (q *Inquiry) Contains(id int64) bool {
	for _, it := range q.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (q *Inquiry) Len() int {
	return len(q.Items)
}
