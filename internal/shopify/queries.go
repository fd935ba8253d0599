package shopify

const productFields = `
fragment ProductFields on Product {
  id
  handle
  title
  description
  vendor
  productType
  tags
  availableForSale
  priceRange { minVariantPrice { amount currencyCode } }
  images(first: 10) { edges { node { url altText } } }
  variants(first: 25) {
    edges {
      node {
        id
        title
        availableForSale
        price { amount currencyCode }
        selectedOptions { name value }
      }
    }
  }
}
`

const productsQuery = `
query Products($first: Int!, $after: String, $sortKey: ProductSortKeys, $reverse: Boolean, $query: String) {
  products(first: $first, after: $after, sortKey: $sortKey, reverse: $reverse, query: $query) {
    edges { node { ...ProductFields } }
    pageInfo { hasNextPage endCursor }
  }
}
` + productFields

const collectionProductsQuery = `
query CollectionProducts($handle: String!, $first: Int!, $after: String) {
  collection(handle: $handle) {
    products(first: $first, after: $after) {
      edges { node { ...ProductFields } }
      pageInfo { hasNextPage endCursor }
    }
  }
}
` + productFields

const productByHandleQuery = `
query ProductByHandle($handle: String!) {
  product(handle: $handle) { ...ProductFields }
}
` + productFields
