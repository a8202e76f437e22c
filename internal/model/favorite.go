package model

// FavoriteRef is a saved reference to an externally searched event.  The
// display fields are copied at save time and never refreshed.
type FavoriteRef struct {
    ID       string `json:"id"`
    Name     string `json:"name"`
    Location string `json:"location"`
    Date     string `json:"date"`
    Time     string `json:"time"`
    Image    string `json:"image,omitempty"`
}

// FavoritePage is one page of a user's favorites.  Page is 1-based; Size 0
// means everything on a single page.
type FavoritePage struct {
    Favorites  []FavoriteRef `json:"favorites"`
    Page       int           `json:"page"`
    Size       int           `json:"size"`
    Total      int           `json:"total"`
    TotalPages int           `json:"totalPages"`
}
