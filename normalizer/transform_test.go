package normalizer_test

import (
	"net/url"
	"testing"

	"menu-service/models"
	"menu-service/normalizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMenuItem_DialectEquivalence(t *testing.T) {
	flat := mustParse(t, `{"name":"Kebab","price":5000,"show":true}`)
	wrapped := mustParse(t, `{"mapValue":{"fields":{
		"name":{"stringValue":"Kebab"},
		"price":{"integerValue":"5000"},
		"show":{"booleanValue":true}
	}}}`)

	a := normalizer.ExtractMenuItem(flat)
	b := normalizer.ExtractMenuItem(wrapped)

	assert.Equal(t, a, b)
	assert.Equal(t, models.MenuItem{Name: "Kebab", Price: 5000, Show: true}, a)
}

func TestExtractMenu_VisibilityAndCategories(t *testing.T) {
	menu := normalizer.ExtractMenu(mustParse(t, `{"items":[
		{"name":"Shawarma","price":8000,"category":" Grill ","category_en":"Grill","show":true},
		{"name":"Hidden","price":1000,"category":"Secret","category_en":"Secret","show":false},
		{"name":"Kebab","price":9000,"category":"Grill","show":"true"},
		{"name":"","name_en":"","price":100,"category":"Ghost","show":true},
		{"name":"Juice","price":3000,"category":"Drinks","show":true},
		{"name":"NoFlag","price":3000,"category":"Unlisted"}
	]}`))

	require.Len(t, menu.Items, 3)
	assert.Equal(t, []string{"Shawarma", "Kebab", "Juice"}, []string{menu.Items[0].Name, menu.Items[1].Name, menu.Items[2].Name})
	assert.Equal(t, []string{"Grill", "Drinks"}, menu.Categories)
	assert.Equal(t, []string{"Grill"}, menu.CategoriesEn)
	assert.NotContains(t, menu.Categories, "Secret")
}

func TestExtractMenu_NameAndCategoryBackfill(t *testing.T) {
	menu := normalizer.ExtractMenu(mustParse(t, `{"items":[
		{"name":"","name_en":"Burger","category_en":"Sandwiches","price":7000,"show":true}
	]}`))

	require.Len(t, menu.Items, 1)
	assert.Equal(t, "Burger", menu.Items[0].Name)
	assert.Equal(t, "Burger", menu.Items[0].NameEn)
	assert.Equal(t, "Sandwiches", menu.Items[0].Category)
	assert.Equal(t, []string{"Sandwiches"}, menu.Categories)
}

func TestExtractMenu_WrappedItemsUnderFields(t *testing.T) {
	menu := normalizer.ExtractMenu(mustParse(t, `{"fields":{"items":{"arrayValue":{"values":[
		{"mapValue":{"fields":{
			"id":{"stringValue":"m1"},
			"name":{"stringValue":"Falafel"},
			"price":{"doubleValue":2500},
			"category":{"stringValue":"Sandwiches"},
			"show":{"booleanValue":true},
			"options":[{"name":"Large","price":3500}]
		}}}
	]}}}}`))

	require.Len(t, menu.Items, 1)
	item := menu.Items[0]
	assert.Equal(t, "m1", item.ID)
	assert.Equal(t, 2500.0, item.Price)
	require.Len(t, item.Options, 1)
	assert.Equal(t, models.MenuItemOption{Name: "Large", Price: 3500}, item.Options[0])
}

func TestExtractOptions_PriceGate(t *testing.T) {
	opts := normalizer.ExtractOptions(mustParse(t, `{"arrayValue":{"values":[
		{"mapValue":{"fields":{"name":{"stringValue":"Small"},"price":{"integerValue":"0"}}}},
		{"mapValue":{"fields":{"name":{"stringValue":""},"name_en":{"stringValue":""},"price":{"integerValue":"2000"}}}},
		{"mapValue":{"fields":{"name":{"stringValue":"Medium"},"price":{"integerValue":"-5"}}}},
		{"mapValue":{"fields":{"name_en":{"stringValue":"Large"},"price":{"integerValue":"4000"}}}},
		{"name":"Double","price":"6000"}
	]}}`))

	require.Len(t, opts, 2)
	assert.Equal(t, "Large", opts[0].Name)
	assert.Equal(t, "Large", opts[0].NameEn)
	assert.Equal(t, 4000.0, opts[0].Price)
	assert.Equal(t, "Double", opts[1].Name)
	assert.Equal(t, 6000.0, opts[1].Price)
}

func TestExtractMenu_NoOptionsLeavesNil(t *testing.T) {
	menu := normalizer.ExtractMenu(mustParse(t, `{"items":[
		{"name":"Tea","price":1000,"show":true,"options":[{"name":"Free","price":0}]}
	]}`))

	require.Len(t, menu.Items, 1)
	assert.Nil(t, menu.Items[0].Options)
}

func TestExtractBranches_Filtering(t *testing.T) {
	branches := normalizer.ExtractBranches(mustParse(t, `[
		{"branchId":"b1","address":"Mazzeh","lat":33.5,"lng":36.2,"whatsapp":"963911111111"},
		{"id":"b2","address":"   ","latitude":1,"longitude":2},
		{"id":"b3","address":"Malki","latitude":33.51,"longitude":36.28,"whatsAppNumber":"963922222222"},
		{"id":"b4"}
	]`))

	require.Len(t, branches, 2)
	assert.Equal(t, "b1", branches[0].ID)
	require.NotNil(t, branches[0].Latitude)
	assert.Equal(t, 33.5, *branches[0].Latitude)
	assert.Equal(t, "963911111111", branches[0].WhatsAppNumber)
	assert.Equal(t, "b3", branches[1].ID)
	assert.Equal(t, 36.28, *branches[1].Longitude)
	assert.Equal(t, "963922222222", branches[1].WhatsAppNumber)
}

func TestExtractBranches_Wrapped(t *testing.T) {
	branches := normalizer.ExtractBranches(mustParse(t, `{"arrayValue":{"values":[
		{"mapValue":{"fields":{"branchId":{"stringValue":"b1"},"address":{"stringValue":"Bab Touma"},"lat":{"doubleValue":33.51}}}}
	]}}`))

	require.Len(t, branches, 1)
	assert.Equal(t, "Bab Touma", branches[0].Address)
	assert.Nil(t, branches[0].Longitude)
}

func TestExtractDetails_Fallbacks(t *testing.T) {
	d := normalizer.ExtractDetails(mustParse(t, `{
		"id":"r1","name":"Al Sham","address":"Damascus","logo":"https://drive.google.com/file/d/LOGO123/view",
		"phone":963933333333,"facebook":"fb","instagram":"ig","website":"web",
		"category":"Grill","rating":"4.5","latitude":33.5,"longitude":36.3,
		"delivery":true,"takeaway":"true","reservation":false
	}`))

	assert.Equal(t, "r1", d.ID)
	assert.Equal(t, "Al Sham", d.RestaurantName)
	assert.Equal(t, "https://lh3.googleusercontent.com/d/LOGO123=w500", d.LogoURL)
	assert.Equal(t, "963933333333", d.WhatsAppNumber)
	assert.Equal(t, "fb", d.FacebookURL)
	assert.Equal(t, "ig", d.InstagramURL)
	assert.Equal(t, "web", d.WebsiteURL)
	assert.Equal(t, 4.5, d.Rating)
	require.NotNil(t, d.Latitude)
	assert.Equal(t, 33.5, *d.Latitude)
	assert.Equal(t, models.Features{Delivery: true, Takeaway: true}, d.Features)
	assert.Empty(t, d.Branches)
}

func TestExtractDetails_WrappedWithNestedFeatures(t *testing.T) {
	d := normalizer.ExtractDetails(mustParse(t, `{"fields":{
		"restaurantName":{"stringValue":"Beit Jeddi"},
		"whatsAppNumber":{"stringValue":"963944444444"},
		"rating":{"doubleValue":4},
		"features":{"mapValue":{"fields":{"delivery":{"booleanValue":true},"reservation":{"booleanValue":true}}}},
		"branches":{"arrayValue":{"values":[{"mapValue":{"fields":{"id":{"stringValue":"b1"},"address":{"stringValue":"Shaalan"}}}}]}}
	}}`))

	assert.Equal(t, "Beit Jeddi", d.RestaurantName)
	assert.Equal(t, "963944444444", d.WhatsAppNumber)
	assert.Equal(t, 4.0, d.Rating)
	assert.Equal(t, models.Features{Delivery: true, Reservation: true}, d.Features)
	require.Len(t, d.Branches, 1)
	assert.Equal(t, "Shaalan", d.Branches[0].Address)
}

func TestTransform_DefaultDetailsWhenAbsent(t *testing.T) {
	result := normalizer.Transform(mustParse(t, `{"menu":{"items":[]}}`))

	require.NotNil(t, result)
	assert.Equal(t, normalizer.DefaultDetails(), result.Details)
	assert.Equal(t, "", result.Details.RestaurantName)
	assert.Equal(t, 0.0, result.Details.Rating)
	assert.Equal(t, models.Features{}, result.Details.Features)
	assert.NotNil(t, result.Menu.Items)
	assert.Empty(t, result.Menu.Items)
}

func TestTransform_NullPayload(t *testing.T) {
	assert.Nil(t, normalizer.Transform(normalizer.Null))
	assert.Nil(t, normalizer.TransformJSON([]byte(`null`)))
	assert.Nil(t, normalizer.TransformJSON([]byte(`{"details":`)))
}

func TestTransform_MixedDialects(t *testing.T) {
	result := normalizer.TransformJSON([]byte(`{
		"details":{"fields":{"id":{"stringValue":"r9"},"name":{"stringValue":"Mixed"}}},
		"menu":{"items":[
			{"name":"Plate","price":10000,"show":true,"options":{"arrayValue":{"values":[
				{"mapValue":{"fields":{"name":{"stringValue":"Half"},"price":{"integerValue":"6000"}}}}
			]}}}
		]}
	}`))

	require.NotNil(t, result)
	assert.Equal(t, "r9", result.Details.ID)
	assert.Equal(t, "Mixed", result.Details.RestaurantName)
	require.Len(t, result.Menu.Items, 1)
	require.Len(t, result.Menu.Items[0].Options, 1)
	assert.Equal(t, 6000.0, result.Menu.Items[0].Options[0].Price)
}

func TestExtractRestaurants(t *testing.T) {
	list := normalizer.ExtractRestaurants(mustParse(t, `[
		{"id":"r1","restaurantName":"One","address":"Mazzeh"},
		null,
		{"mapValue":{"fields":{"id":{"stringValue":"r2"},"name":{"stringValue":"Two"}}}}
	]`))

	require.Len(t, list, 2)
	assert.Equal(t, "One", list[0].RestaurantName)
	assert.Equal(t, "Two", list[1].RestaurantName)
	assert.Empty(t, normalizer.ExtractRestaurants(normalizer.Null))
}

func TestResolveImageURL(t *testing.T) {
	assert.Equal(t, "", normalizer.ResolveImageURL("   "))
	assert.Equal(t, "https://lh3.googleusercontent.com/d/abc_DEF-1=w500",
		normalizer.ResolveImageURL("https://drive.google.com/file/d/abc_DEF-1/view?usp=sharing"))
	assert.Equal(t, "https://lh3.googleusercontent.com/d/XYZ=w500",
		normalizer.ResolveImageURL("https://drive.google.com/uc?export=view&id=XYZ"))
	assert.Equal(t, "data:image/png;base64,AAA/d/BBB",
		normalizer.ResolveImageURL("data:image/png;base64,AAA/d/BBB"))
	assert.Equal(t, "https://i.ibb.co/img.png", normalizer.ResolveImageURL(" https://i.ibb.co/img.png "))

	resolved := normalizer.ResolveImageURL("https://drive.google.com/file/d/ID1/view")
	assert.Equal(t, resolved, normalizer.ResolveImageURL(resolved))
	_, err := url.Parse(resolved)
	assert.NoError(t, err)
}
