// Package httpapi expõe a API de projetos sobre gorilla/mux, com cada rota
// protegida pelo guard com sua própria chave de rate limit e modo de origem.
package httpapi
