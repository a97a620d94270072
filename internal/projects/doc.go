// Package projects é o recurso de projetos protegido pelo guard: modelo,
// validação de entrada, repositório em memória e estatísticas derivadas.
//
// Autorização segue o modelo de equipe pessoal: cada usuário só enxerga
// projetos da própria equipe e só o criador altera ou remove.
package projects
